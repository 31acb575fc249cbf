package services

import "foodgram/internal/models"

// Identity is the authenticated caller. A nil *Identity is an anonymous caller.
type Identity struct {
	UserID   uint
	Username string
	IsStaff  bool
}

// IsAuthenticated reports whether id belongs to a logged-in user.
func IsAuthenticated(id *Identity) bool {
	return id != nil && id.UserID != 0
}

// CanModifyRecipe allows only the author to edit or delete a recipe.
func CanModifyRecipe(id *Identity, recipe *models.Recipe) bool {
	return IsAuthenticated(id) && recipe != nil && recipe.AuthorID == id.UserID
}

// CanManageCatalog gates tag and ingredient writes and the CSV import.
func CanManageCatalog(id *Identity) bool {
	return IsAuthenticated(id) && id.IsStaff
}

// CanDeleteUser lets staff remove any account other than their own.
func CanDeleteUser(id *Identity, targetID uint) bool {
	return CanManageCatalog(id) && id.UserID != targetID
}
