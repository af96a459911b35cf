package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurgeEntity_Validate(t *testing.T) {
	for _, e := range PurgeEntities {
		assert.NoError(t, e.Validate(), string(e))
	}

	err := PurgeEntity("attachments").Validate()
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestPurgeEntities_TasksFirst(t *testing.T) {
	assert.Equal(t, PurgeTasks, PurgeEntities[0])
	assert.Len(t, PurgeEntities, 4)
}
