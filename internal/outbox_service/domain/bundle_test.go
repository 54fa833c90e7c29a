package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

func newTestBundle(maxCount int) *Bundle {
	return NewBundle(uuid.New(), core.DocTypeNotifyAggregatedMeasureData,
		core.ReasonBalanceFixing, nil, maxCount, time.Now())
}

func TestBundle_AddMessage_ClosesAtCapacity(t *testing.T) {
	b := newTestBundle(3)
	now := time.Now()

	require.NoError(t, b.AddMessage(now))
	require.NoError(t, b.AddMessage(now))
	assert.Nil(t, b.ClosedAt)
	assert.True(t, b.CanAccept())

	require.NoError(t, b.AddMessage(now))
	assert.NotNil(t, b.ClosedAt)
	assert.False(t, b.CanAccept())
	assert.Equal(t, 3, b.MessageCount)

	err := b.AddMessage(now)
	assert.ErrorIs(t, err, ErrBundleClosed)
	assert.Equal(t, 3, b.MessageCount)
}

func TestBundle_Close_IsIdempotent(t *testing.T) {
	b := newTestBundle(100)
	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	b.Close(first)
	require.NotNil(t, b.ClosedAt)

	b.Close(first.Add(time.Hour))
	assert.Equal(t, first, *b.ClosedAt)
}

func TestBundle_MarkPeeked(t *testing.T) {
	b := newTestBundle(10)
	now := time.Now()

	err := b.MarkPeeked(now, core.FormatCIMJson, "path/a")
	assert.ErrorIs(t, err, ErrBundleNotClosed)

	b.Close(now)
	require.NoError(t, b.MarkPeeked(now, core.FormatCIMJson, "path/a"))
	require.NotNil(t, b.PeekedAt)
	require.NotNil(t, b.DocumentPath)
	assert.Equal(t, "path/a", *b.DocumentPath)
	assert.Equal(t, core.FormatCIMJson, *b.DocumentFormat)

	// A repeat peek keeps the original document.
	require.NoError(t, b.MarkPeeked(now.Add(time.Minute), core.FormatCIMXml, "path/b"))
	assert.Equal(t, "path/a", *b.DocumentPath)
	assert.Equal(t, core.FormatCIMJson, *b.DocumentFormat)
}

func TestBundle_MarkDequeued(t *testing.T) {
	b := newTestBundle(10)
	now := time.Now()

	assert.False(t, b.MarkDequeued(now), "dequeue before peek must fail")

	b.Close(now)
	require.NoError(t, b.MarkPeeked(now, core.FormatCIMJson, "path"))
	assert.True(t, b.MarkDequeued(now))
	assert.False(t, b.MarkDequeued(now), "second dequeue must fail")
}

func TestMailboxReceiver_CoercesMeteredDataResponsible(t *testing.T) {
	coerced := MailboxReceiver(core.Actor{Number: "5790001330552", Role: core.RoleMeteredDataResponsible})
	assert.Equal(t, core.RoleGridAccessProvider, coerced.Role)
	assert.Equal(t, core.ActorNumber("5790001330552"), coerced.Number)

	unchanged := MailboxReceiver(core.Actor{Number: "5790001330552", Role: core.RoleEnergySupplier})
	assert.Equal(t, core.RoleEnergySupplier, unchanged.Role)
}

func TestNewOutgoingMessage_Suppressed(t *testing.T) {
	base := NewOutgoingMessage{
		DocumentReceiverNumber: "5790000000005",
		DocumentReceiverRole:   core.RoleBalanceResponsibleParty,
		BusinessReason:         core.ReasonWholesaleFixing,
	}
	assert.True(t, base.Suppressed())

	base.BusinessReason = core.ReasonCorrection
	assert.True(t, base.Suppressed())

	base.BusinessReason = core.ReasonBalanceFixing
	assert.False(t, base.Suppressed())

	base.BusinessReason = core.ReasonWholesaleFixing
	base.DocumentReceiverRole = core.RoleEnergySupplier
	assert.False(t, base.Suppressed())
}

func TestDelegation_ActiveAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	d := &Delegation{StartsAt: start, StopsAt: stop}

	assert.False(t, d.ActiveAt(start.Add(-time.Second)))
	assert.True(t, d.ActiveAt(start), "window start is inclusive")
	assert.True(t, d.ActiveAt(stop.Add(-time.Second)))
	assert.False(t, d.ActiveAt(stop), "window stop is exclusive")

	tombstone := &Delegation{StartsAt: start, StopsAt: start}
	assert.False(t, tombstone.ActiveAt(start), "zero-width window is never active")
}

func TestNewDelegation_Validate(t *testing.T) {
	valid := NewDelegation{
		SequenceNumber:    1,
		ProcessType:       core.ProcessReceiveEnergyResults,
		GridArea:          "804",
		DelegatedByNumber: "5790000000005",
		DelegatedByRole:   core.RoleGridAccessProvider,
		DelegatedToNumber: "5790000000012",
		DelegatedToRole:   core.RoleDelegated,
		StartsAt:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		StopsAt:           time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	tombstone := valid
	tombstone.StopsAt = tombstone.StartsAt
	assert.NoError(t, tombstone.Validate(), "zero-width window is the tombstone form")

	inverted := valid
	inverted.StopsAt = inverted.StartsAt.Add(-time.Hour)
	assert.Error(t, inverted.Validate())

	missingArea := valid
	missingArea.GridArea = ""
	assert.Error(t, missingArea.Validate())
}
