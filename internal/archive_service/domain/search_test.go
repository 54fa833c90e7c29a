package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/enerhub/edi_services/internal/core_domain"
)

func TestNewPagination_Defaults(t *testing.T) {
	p, err := NewPagination(50, "", "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, SortByCreatedAt, p.Field)
	assert.Equal(t, Descending, p.Direction)
	assert.Equal(t, 50, p.PageSize)
	assert.True(t, p.Forward)
}

func TestNewPagination_RejectsNonPositivePageSize(t *testing.T) {
	_, err := NewPagination(0, SortByCreatedAt, Descending, nil, true)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "pageSize", validationErr.Field)

	_, err = NewPagination(-7, SortByCreatedAt, Descending, nil, true)
	assert.Error(t, err)
}

func TestNewPagination_RejectsUnknownSortField(t *testing.T) {
	_, err := NewPagination(10, SortField("Priority"), Descending, nil, true)
	assert.Error(t, err)

	_, err = NewPagination(10, SortByCreatedAt, SortDirection("Sideways"), nil, true)
	assert.Error(t, err)
}

func TestNewPagination_CursorTypeMustMatchSortField(t *testing.T) {
	stringCursor := &Cursor{SortValue: StringCursorValue("msg-1"), RecordID: 10}
	timeCursor := &Cursor{SortValue: TimeCursorValue(time.Now()), RecordID: 10}

	_, err := NewPagination(10, SortByCreatedAt, Descending, stringCursor, true)
	assert.Error(t, err, "timestamp sort field rejects string cursor")

	_, err = NewPagination(10, SortByMessageID, Ascending, timeCursor, true)
	assert.Error(t, err, "string sort field rejects timestamp cursor")

	_, err = NewPagination(10, SortByCreatedAt, Descending, timeCursor, true)
	assert.NoError(t, err)

	_, err = NewPagination(10, SortBySenderNumber, Ascending, stringCursor, false)
	assert.NoError(t, err)
}

func TestCursorValue_Arg(t *testing.T) {
	s := StringCursorValue("5790001330552")
	assert.True(t, s.IsString())
	assert.Equal(t, "5790001330552", s.Arg())

	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	v := TimeCursorValue(ts)
	assert.False(t, v.IsString())
	assert.Equal(t, ts.UTC(), v.Arg(), "timestamps are normalized to UTC")
}

func TestSearchCriteria_Validate(t *testing.T) {
	page, err := NewPagination(10, SortByDocumentType, Descending, nil, true)
	require.NoError(t, err)

	mp := "571313180400090019"
	criteria := SearchCriteria{MeteringPointID: &mp}
	assert.Error(t, criteria.Validate(page), "metering queries cannot sort by document type")

	createdPage, err := NewPagination(10, SortByCreatedAt, Descending, nil, true)
	require.NoError(t, err)
	assert.NoError(t, criteria.Validate(createdPage))

	related := SearchCriteria{IncludeRelated: true}
	assert.Error(t, related.Validate(createdPage), "thread expansion requires a message id")

	msgID := "msg-1"
	related.MessageID = &msgID
	assert.NoError(t, related.Validate(createdPage))
}

func TestArchivedMessageInput_StoragePath(t *testing.T) {
	id := uuid.MustParse("0191fd1e-9c2b-7d1a-8f3c-0123456789ab")
	created := time.Date(2026, 3, 5, 23, 45, 0, 0, time.UTC)

	outgoing := &ArchivedMessageInput{
		SenderNumber:   "5790001330001",
		ReceiverNumber: "5790001330552",
		CreatedAt:      created,
		ArchiveType:    ArchiveTypeOutgoing,
	}
	path := outgoing.StoragePath(id)
	assert.Equal(t, "5790001330552/2026/03/05/0191fd1e9c2b7d1a8f3c0123456789ab", path)
	assert.False(t, strings.Contains(path, "-"), "uuid separators must be stripped")

	incoming := &ArchivedMessageInput{
		SenderNumber:   "5790001330001",
		ReceiverNumber: "5790001330552",
		CreatedAt:      created,
		ArchiveType:    ArchiveTypeIncoming,
	}
	assert.True(t, strings.HasPrefix(incoming.StoragePath(id), "5790001330001/"),
		"incoming paths are keyed on the sender")
}

func TestArchivedMessageInput_Validate(t *testing.T) {
	valid := ArchivedMessageInput{
		MessageID:      "msg-1",
		DocumentType:   core.DocTypeNotifyAggregatedMeasureData,
		SenderNumber:   "5790001330001",
		SenderRole:     core.RoleMeteredDataAdministrator,
		ReceiverNumber: "5790001330552",
		ReceiverRole:   core.RoleEnergySupplier,
		CreatedAt:      time.Now(),
		ArchiveType:    ArchiveTypeOutgoing,
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.MessageID = ""
	assert.Error(t, missing.Validate())

	badType := valid
	badType.ArchiveType = ArchiveType("Sideways")
	assert.Error(t, badType.Validate())
}
