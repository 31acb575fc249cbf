package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/models"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

type recordingAcker struct {
	acked, nacked, rejected int
	requeued                bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeued = a.requeued || requeue
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	a.rejected++
	a.requeued = a.requeued || requeue
	return nil
}

func delivery(acker amqp.Acknowledger, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandleDelivery_Ack(t *testing.T) {
	acker := &recordingAcker{}
	var got models.RecipeEvent

	handleDelivery(context.Background(),
		delivery(acker, `{"type":"recipe.published","recipe_id":7,"author_id":2,"name":"Soup"}`),
		func(_ context.Context, e models.RecipeEvent) error {
			got = e
			return nil
		})

	assert.Equal(t, models.RecipeEvent{Type: models.RecipeEventPublished, RecipeID: 7, AuthorID: 2, Name: "Soup"}, got)
	assert.Equal(t, 1, acker.acked)
	assert.Zero(t, acker.nacked)
}

func TestHandleDelivery_HandlerErrorIsNotRequeued(t *testing.T) {
	acker := &recordingAcker{}

	handleDelivery(context.Background(), delivery(acker, `{"type":"recipe.published"}`),
		func(context.Context, models.RecipeEvent) error { return errors.New("db down") })

	assert.Equal(t, 1, acker.nacked)
	assert.False(t, acker.requeued)
	assert.Zero(t, acker.acked)
}

func TestHandleDelivery_MalformedBody(t *testing.T) {
	acker := &recordingAcker{}
	called := false

	handleDelivery(context.Background(), delivery(acker, `not json`),
		func(context.Context, models.RecipeEvent) error {
			called = true
			return nil
		})

	assert.False(t, called)
	assert.Equal(t, 1, acker.rejected)
	assert.False(t, acker.requeued)
}

func TestPublishRecipeEvent_NoChannel(t *testing.T) {
	c := &Client{}
	err := c.PublishRecipeEvent(context.Background(), models.RecipeEvent{Type: models.RecipeEventPublished})
	assert.Error(t, err)
}
