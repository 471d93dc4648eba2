package memory

import (
	"context"
	"testing"

	"github.com/spolu/distinct"
	"github.com/stretchr/testify/assert"
)

var userType = distinct.NewType("users", "token")

func TestInsertSelectDelete(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Insert(NewRecord(userType, map[string]interface{}{
		"token":    "user_1",
		"username": "alan",
	}).Persist())
	store.Insert(NewRecord(userType, map[string]interface{}{
		"token":    "user_2",
		"username": "alan",
	}).Persist())

	query := store.Select(userType).Where(distinct.Conds{
		distinct.Cond{Column: "username", Value: "alan"},
	})

	exists, err := query.Exists(ctx)
	assert.Nil(t, err)
	assert.True(t, exists)

	// Matches come back in insertion order.
	records, err := query.FetchUpTo(ctx, 2)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(records))
	assert.True(t,
		records[0].PrimaryKey().Equal(distinct.Key{"token": "user_1"}))

	store.Delete(records[0])

	records, err = query.FetchUpTo(ctx, 2)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(records))
	assert.True(t,
		records[0].PrimaryKey().Equal(distinct.Key{"token": "user_2"}))
}

func TestRecordPersist(t *testing.T) {
	record := NewRecord(userType, map[string]interface{}{
		"token":    "user_1",
		"username": "alan",
	})
	assert.True(t, record.IsNew())

	record.Persist()
	assert.False(t, record.IsNew())
	assert.True(t,
		record.PreviousPrimaryKey().Equal(distinct.Key{"token": "user_1"}))

	// Changing the primary key in memory leaves the previous key behind.
	record.Set("token", "user_9")
	assert.True(t,
		record.PrimaryKey().Equal(distinct.Key{"token": "user_9"}))
	assert.True(t,
		record.PreviousPrimaryKey().Equal(distinct.Key{"token": "user_1"}))
}
