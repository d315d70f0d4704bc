package model

// DeleteOutcome は1ユーザーに対する削除処理の結果。
type DeleteOutcome int

const (
	// OutcomeDeleted は削除に成功したことを示す。
	OutcomeDeleted DeleteOutcome = iota
	// OutcomeAbandoned は最大試行回数に達して削除を断念したことを示す。
	OutcomeAbandoned
)

// String はログ出力用の文字列表現を返す。
func (o DeleteOutcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Summary は一括削除1回分の集計結果。
type Summary struct {
	Found          int // 初回一覧取得時のcount
	Deleted        int
	Skipped        int
	Abandoned      int
	PagesFetched   int // 初回ページを含む
	PageFailures   int
	TokenRefreshes int
}

// Record は削除結果を集計に反映する。
func (s *Summary) Record(o DeleteOutcome) {
	switch o {
	case OutcomeDeleted:
		s.Deleted++
	case OutcomeAbandoned:
		s.Abandoned++
	}
}
