package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadgear/prospector/internal/db"
)

func TestResolveCity(t *testing.T) {
	tests := []struct {
		name    string
		city    *string
		address *string
		want    string
	}{
		{"explicit city wins", strPtr("Springfield"), strPtr("1 Elm St, Shelbyville, IL"), "Springfield"},
		{"city from address", nil, strPtr("12 Main St, Springfield, IL"), "Springfield"},
		{"two-part address", nil, strPtr("Springfield, IL"), "Springfield"},
		{"address without commas", nil, strPtr("12 Main St"), ""},
		{"nothing set", nil, nil, ""},
		{"blank city falls through", strPtr("  "), strPtr("5 Oak Ave, Capital City, IL"), "Capital City"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &db.Prospect{City: tt.city, Address: tt.address}
			assert.Equal(t, tt.want, resolveCity(p))
		})
	}
}

func TestPriorityForScore(t *testing.T) {
	assert.Equal(t, db.PriorityHigh, priorityForScore(80))
	assert.Equal(t, db.PriorityHigh, priorityForScore(100))
	assert.Equal(t, db.PriorityMedium, priorityForScore(60))
	assert.Equal(t, db.PriorityMedium, priorityForScore(79))
	assert.Equal(t, db.PriorityLow, priorityForScore(59))
	assert.Equal(t, db.PriorityLow, priorityForScore(0))
}

func TestPickPrimaryContact(t *testing.T) {
	dm := &db.Contact{ID: "dm", Email: strPtr("dm@x.test"), IsDecisionMaker: true}
	plain := &db.Contact{ID: "plain", Email: strPtr("plain@x.test")}
	noEmail := &db.Contact{ID: "noemail"}

	assert.Nil(t, pickPrimaryContact(nil))
	assert.Equal(t, "dm", pickPrimaryContact([]*db.Contact{noEmail, plain, dm}).ID)
	assert.Equal(t, "plain", pickPrimaryContact([]*db.Contact{noEmail, plain}).ID)
	assert.Equal(t, "noemail", pickPrimaryContact([]*db.Contact{noEmail}).ID)
}

func TestBatchSizeFloor(t *testing.T) {
	sc := &stageContext{cfg: &db.AgentConfig{BatchSize: 0}}
	assert.Equal(t, 10, sc.batchSize())
	sc.cfg.BatchSize = 25
	assert.Equal(t, 25, sc.batchSize())
}
