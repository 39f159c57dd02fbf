//go:build ruleguard
// +build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// Team rules that upstream tooling and Go culture won't enforce for us.

func receiverNameMinLength(m dsl.Matcher) {
	// Enforce: receiver identifier must not be 1 character.
	isSingleChar := func(v dsl.Var) bool {
		return v.Text.Matches(`^[a-zA-Z]$`) && !v.Text.Matches(`^[te]$`)
	}

	m.Match(`func ($recv $recvType) $name($*args) $*results { $*_ }`).
		Where(isSingleChar(m["recv"])).
		Report(`receiver name must be a meaningful, domain-compliant name (min 2 characters); avoid single-letter receivers`)
}

func forbidIgnoringJSONDecodeError(m dsl.Matcher) {
	// Loud failures: a malformed document is never a success.
	isBlankIdent := func(v dsl.Var) bool {
		return v.Text.Matches(`^_$`)
	}

	m.Import(`github.com/goccy/go-json`)
	m.Match(`$err = json.Unmarshal($data, $v)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check json.Unmarshal error and return/propagate it`)
	m.Match(`$err = json.NewDecoder($r).Decode($v)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check json.Decode error and return/propagate it`)
}

func forbidUnvalidatedGJSONParse(m dsl.Matcher) {
	// gjson accepts garbage silently; documents read from disk must be
	// checked with gjson.ValidBytes first.
	m.Import(`github.com/tidwall/gjson`)
	m.Match(`gjson.ParseBytes($data)`).
		Where(!m.File().PkgPath.Matches(`/internal/(locale|bundles|cities)$`)).
		Report(`parse JSON documents in the locale, bundles or cities packages, which validate before parsing`)
}

func forbidDirectWritesInDataPackages(m dsl.Matcher) {
	// Locale files and seed datasets are replaced atomically.
	m.Import(`github.com/spf13/afero`)
	m.Match(`afero.WriteFile($fs, $path, $data, $perm)`).
		Where(m.File().PkgPath.Matches(`/internal/(locale|cities|config)$`)).
		Report(`use fileutils.WriteFileAtomic so a failed write never truncates the target`)
}

func forbidIgnoringAtoiErrorInBoundaryParsing(m dsl.Matcher) {
	// Boundary validation: no silent coercion.
	isBlankIdent := func(v dsl.Var) bool {
		return v.Text.Matches(`^_$`)
	}

	m.Import(`strconv`)
	m.Match(`$value, $err = strconv.Atoi($arg)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check strconv.Atoi error and treat invalid input as invalid (no silent coercion)`)
	m.Match(`$value, $err := strconv.Atoi($arg)`).
		Where(isBlankIdent(m["err"])).
		Report(`must check strconv.Atoi error and treat invalid input as invalid (no silent coercion)`)
}
