// Package renderer produces wire-format market documents from closed bundles.
package renderer

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"time"

	core "github.com/enerhub/edi_services/internal/core_domain"
	"github.com/enerhub/edi_services/internal/outbox_service/domain"
)

// DocumentRenderer renders a bundle into a CIM envelope in the requested
// serialization. The rendered document always shows the document receiver,
// not the mailbox the bundle was delegated to.
type DocumentRenderer struct{}

func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

type marketDocument struct {
	XMLName        xml.Name         `json:"-" xml:"MarketDocument"`
	MessageID      string           `json:"messageId" xml:"MessageId"`
	DocumentType   string           `json:"documentType" xml:"DocumentType"`
	BusinessReason string           `json:"businessReason" xml:"BusinessReason"`
	CreatedAt      string           `json:"createdAt" xml:"CreatedAt"`
	RelatedTo      *string          `json:"relatedToMessageId,omitempty" xml:"RelatedToMessageId,omitempty"`
	Series         []documentSeries `json:"series" xml:"Series"`
}

type documentSeries struct {
	TransactionID  string `json:"transactionId" xml:"TransactionId"`
	SenderNumber   string `json:"senderNumber" xml:"SenderNumber"`
	SenderRole     string `json:"senderRole" xml:"SenderRole"`
	ReceiverNumber string `json:"receiverNumber" xml:"ReceiverNumber"`
	ReceiverRole   string `json:"receiverRole" xml:"ReceiverRole"`
	ProcessType    string `json:"processType" xml:"ProcessType"`
	GridArea       string `json:"gridArea" xml:"GridArea"`
	PeriodStart    string `json:"periodStart" xml:"PeriodStart"`
	PayloadPath    string `json:"payloadPath" xml:"PayloadPath"`
}

// Render serializes the bundle. Ebix serialization is not implemented; callers
// asking for it get an error rather than a silently wrong document.
func (r *DocumentRenderer) Render(_ context.Context, bundle *domain.Bundle,
	messages []*domain.OutgoingMessage, format core.DocumentFormat) ([]byte, string, error) {

	doc := marketDocument{
		MessageID:      bundle.MessageID.String(),
		DocumentType:   bundle.DocumentType.String(),
		BusinessReason: bundle.BusinessReason.String(),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		RelatedTo:      bundle.RelatedToMessageID,
		Series:         make([]documentSeries, 0, len(messages)),
	}
	for _, m := range messages {
		doc.Series = append(doc.Series, documentSeries{
			TransactionID:  m.ID.String(),
			SenderNumber:   string(m.SenderNumber),
			SenderRole:     m.SenderRole.String(),
			ReceiverNumber: string(m.DocumentReceiverNumber),
			ReceiverRole:   m.DocumentReceiverRole.String(),
			ProcessType:    m.ProcessType.String(),
			GridArea:       m.GridArea,
			PeriodStart:    m.PeriodStart.UTC().Format(time.RFC3339),
			PayloadPath:    m.FileStoragePath,
		})
	}

	switch format {
	case core.FormatCIMJson:
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("marshal CIM JSON: %w", err)
		}
		return data, "application/json", nil
	case core.FormatCIMXml:
		data, err := xml.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("marshal CIM XML: %w", err)
		}
		return append([]byte(xml.Header), data...), "application/xml", nil
	default:
		return nil, "", fmt.Errorf("unsupported document format %q", format)
	}
}
