package request

import "github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"

// SubmitTicketRequest accepts numbers either as a JSON array or as a
// delimited string such as "1, 2, 3, 4, 5, 6". The ticket rules are applied
// by the admission service.
type SubmitTicketRequest struct {
	PersonalID string            `json:"personal_id"`
	Numbers    domain.RawNumbers `json:"numbers" swaggertype:"array,integer"`
}
