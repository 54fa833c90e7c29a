package renderer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
)

func renderFixture() (*domain.Bundle, []*domain.OutgoingMessage) {
	bundle := &domain.Bundle{
		ID:             uuid.New(),
		MessageID:      uuid.New(),
		DocumentType:   core.DocTypeNotifyAggregatedMeasureData,
		BusinessReason: core.ReasonPeriodicMetering,
	}
	msg := &domain.OutgoingMessage{
		ID:                     uuid.New(),
		ReceiverNumber:         core.ActorNumber("5790000000001"),
		ReceiverRole:           core.RoleGridAccessProvider,
		DocumentReceiverNumber: core.ActorNumber("5790000000002"),
		DocumentReceiverRole:   core.RoleMeteredDataResponsible,
		SenderNumber:           core.ActorNumber("5790001330552"),
		SenderRole:             core.RoleEnergySupplier,
		DocumentType:           core.DocTypeNotifyAggregatedMeasureData,
		BusinessReason:         core.ReasonPeriodicMetering,
		ProcessType:            core.ProcessReceiveEnergyResults,
		GridArea:               "804",
		PeriodStart:            time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		FileStoragePath:        "payloads/2026/03/01/abc",
	}
	return bundle, []*domain.OutgoingMessage{msg}
}

func TestDocumentRenderer_RenderJSON(t *testing.T) {
	bundle, msgs := renderFixture()
	r := NewDocumentRenderer()

	data, contentType, err := r.Render(context.Background(), bundle, msgs, core.FormatCIMJson)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, bundle.MessageID.String(), doc["messageId"])
	assert.Equal(t, "NotifyAggregatedMeasureData", doc["documentType"])

	series, ok := doc["series"].([]interface{})
	require.True(t, ok)
	require.Len(t, series, 1)

	// The rendered series carries the document receiver, not the mailbox
	// owner the bundle may have been delegated to.
	first := series[0].(map[string]interface{})
	assert.Equal(t, "5790000000002", first["receiverNumber"])
	assert.Equal(t, "MeteredDataResponsible", first["receiverRole"])
	assert.Equal(t, "payloads/2026/03/01/abc", first["payloadPath"])
}

func TestDocumentRenderer_RenderXML(t *testing.T) {
	bundle, msgs := renderFixture()
	r := NewDocumentRenderer()

	data, contentType, err := r.Render(context.Background(), bundle, msgs, core.FormatCIMXml)
	require.NoError(t, err)
	assert.Equal(t, "application/xml", contentType)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
	assert.Contains(t, string(data), "<MarketDocument>")
	assert.Contains(t, string(data), "<SenderNumber>5790001330552</SenderNumber>")
}

func TestDocumentRenderer_EbixUnsupported(t *testing.T) {
	bundle, msgs := renderFixture()
	r := NewDocumentRenderer()

	_, _, err := r.Render(context.Background(), bundle, msgs, core.FormatEbix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document format")
}
