//go:build ruleguard

// Package gorules holds ruleguard checks run by gocritic in CI.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Consecutive guards with the same return can be merged with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

func errorWrapping(m dsl.Matcher) {
	// Wrapped errors must stay matchable with errors.Is.
	m.Match(`fmt.Errorf($msg, $*_, $err)`).
		Where(m["err"].Type.Is(`error`) && !m["msg"].Text.Matches(`%w`)).
		Report(`error formatted without %w; callers lose errors.Is/As`)

	m.Match(`errors.New(fmt.Sprintf($*args))`).
		Report(`use fmt.Errorf instead of errors.New(fmt.Sprintf(...))`).
		Suggest(`fmt.Errorf($args)`)
}

func toolArguments(m dsl.Matcher) {
	// Arguments decoded into float64 lose integer precision.
	m.Match(`json.Unmarshal($data, &$args)`).
		Where(m["args"].Type.Is(`map[string]any`)).
		Report(`decode tool arguments with tool.DecodeArguments to keep json.Number`)
}
