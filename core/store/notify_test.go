package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vonnieda/dimple/core/model"
)

func TestNotifier_DeliversBuffered(t *testing.T) {
	n := NewNotifier(2)
	n.Publish(Event{Kind: model.KindArtist, Key: "k1"})
	n.Publish(Event{Kind: model.KindArtist, Key: "k2"})

	assert.Equal(t, "k1", (<-n.Events()).Key)
	assert.Equal(t, "k2", (<-n.Events()).Key)
	assert.Equal(t, 0, n.Dropped())
}

func TestNotifier_DropsWhenFull(t *testing.T) {
	n := NewNotifier(1)
	n.Publish(Event{Key: "k1"})
	n.Publish(Event{Key: "k2"})
	n.Publish(Event{Key: "k3"})

	assert.Equal(t, 2, n.Dropped())
	assert.Equal(t, "k1", (<-n.Events()).Key)
}

func TestNotifier_PublishAfterCloseIsNoOp(t *testing.T) {
	n := NewNotifier(1)
	n.Close()
	n.Publish(Event{Key: "k1"})
	n.Close()

	_, open := <-n.Events()
	assert.False(t, open)
	assert.Equal(t, 0, n.Dropped())
}
