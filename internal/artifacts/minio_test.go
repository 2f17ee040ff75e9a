package artifacts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/reelmint/reelmint/internal/artifacts"
)

func TestObjectKey(t *testing.T) {
	jobID := uuid.New()
	now := time.Now()

	key1 := artifacts.ObjectKey(jobID, now)
	key2 := artifacts.ObjectKey(jobID, now.Add(time.Nanosecond))

	assert.Contains(t, key1, jobID.String())
	assert.NotEqual(t, key1, key2, "retried runs must never collide on key")
}
