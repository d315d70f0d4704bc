// Package query はユーザー一覧APIに渡すSCIMフィルタ式を組み立てる。
package query

import "strings"

// Build は母集団IDと任意のフィルタ句から1つのフィルタ式を生成する。
//   - どちらも未指定: 空文字列（環境内の全ユーザー）
//   - 母集団のみ: (population.id eq "<id>")
//   - フィルタ句のみ: 句を空白で連結したものをそのまま使う
//   - 両方: (population.id eq "<id>") and (<句>)
//
// populationID内の引用符はエスケープしない。フィルタ句の構文検証もしない。
func Build(populationID string, clauses []string) string {
	extra := strings.Join(clauses, " ")

	switch {
	case populationID == "" && extra == "":
		return ""
	case populationID == "":
		return extra
	case extra == "":
		return populationClause(populationID)
	default:
		return populationClause(populationID) + " and (" + extra + ")"
	}
}

func populationClause(populationID string) string {
	return `(population.id eq "` + populationID + `")`
}
