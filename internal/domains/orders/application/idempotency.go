package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	ordertypes "github.com/Apurer/go-procurement-server/internal/domains/orders/application/types"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
)

type normalizedSubmission struct {
	ActorID              int64                     `json:"actorId"`
	SiteID               int64                     `json:"siteId"`
	Priority             string                    `json:"priority"`
	Note                 string                    `json:"note"`
	ExpectedDeliveryDate *time.Time                `json:"expectedDeliveryDate"`
	IsLPO                bool                      `json:"isLpo"`
	Suppliers            map[int64]int64           `json:"suppliers"`
	Lines                []normalizedLine          `json:"lines"`
	CustomProducts       []normalizedCustomProduct `json:"customProducts"`
}

type normalizedLine struct {
	ProductID int64  `json:"productId"`
	Quantity  string `json:"quantity"`
}

type normalizedCustomProduct struct {
	Note                string               `json:"note"`
	ConnectedProductIDs []int64              `json:"connectedProductIds"`
	Payload             domain.CustomPayload `json:"payload"`
	Images              []string             `json:"images"`
}

// FingerprintSubmission hashes a submission, excluding its idempotency key. Regular lines
// are ordered by product so a reordered retry still matches.
func FingerprintSubmission(input ordertypes.SubmitOrderInput) (string, error) {
	payload, err := json.Marshal(normalizeSubmission(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeSubmission(input ordertypes.SubmitOrderInput) normalizedSubmission {
	normalized := normalizedSubmission{
		ActorID:   input.Actor.ID,
		SiteID:    input.SiteID,
		Priority:  input.Priority,
		Note:      input.Note,
		IsLPO:     input.IsLPO,
		Suppliers: input.Suppliers,
		Lines:     make([]normalizedLine, 0, len(input.Lines)),
	}
	if input.ExpectedDeliveryDate != nil {
		at := input.ExpectedDeliveryDate.UTC()
		normalized.ExpectedDeliveryDate = &at
	}
	for _, line := range input.Lines {
		normalized.Lines = append(normalized.Lines, normalizedLine{ProductID: line.ProductID, Quantity: line.Quantity.String()})
	}
	sort.SliceStable(normalized.Lines, func(i, j int) bool { return normalized.Lines[i].ProductID < normalized.Lines[j].ProductID })
	for _, custom := range input.CustomProducts {
		normalized.CustomProducts = append(normalized.CustomProducts, normalizedCustomProduct{
			Note:                custom.Note,
			ConnectedProductIDs: custom.ConnectedProductIDs,
			Payload:             custom.Payload,
			Images:              custom.Images,
		})
	}
	return normalized
}
