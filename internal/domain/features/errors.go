package features

import "errors"

// Sentinel kinds for per-game rejections. None of them stops a run.
var (
	ErrNotFinal          = errors.New("game is not final")
	ErrInvalidGame       = errors.New("invalid game record")
	ErrSeasonMismatch    = errors.New("season does not match game date")
	ErrOutOfOrder        = errors.New("game out of chronological order")
	ErrDuplicateGame     = errors.New("game already processed")
	ErrDetailUnavailable = errors.New("box score unavailable")
	ErrDetailMismatch    = errors.New("box score belongs to another game")
)

// skipReason maps a rejection to a metrics label.
func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFinal):
		return "not_final"
	case errors.Is(err, ErrInvalidGame):
		return "invalid"
	case errors.Is(err, ErrSeasonMismatch):
		return "season_mismatch"
	case errors.Is(err, ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, ErrDuplicateGame):
		return "duplicate"
	case errors.Is(err, ErrDetailUnavailable):
		return "detail_unavailable"
	case errors.Is(err, ErrDetailMismatch):
		return "detail_mismatch"
	default:
		return "other"
	}
}
