package response

import "github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"

type OpenRoundResponse struct {
	Message string       `json:"message"`
	Round   domain.Round `json:"round"`
}

type CloseRoundResponse struct {
	Message string        `json:"message"`
	Closed  bool          `json:"closed"`
	Round   *domain.Round `json:"round,omitempty"`
}

type PublishResponse struct {
	Message      string `json:"message"`
	RoundID      string `json:"roundId"`
	DrawnNumbers []int  `json:"drawnNumbers"`
}

type LatestDrawnResponse struct {
	DrawnNumbers []int `json:"drawnNumbers"`
}
