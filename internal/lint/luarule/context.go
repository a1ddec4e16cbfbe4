package luarule

import (
	"context"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
)

// contextTable builds the ctx argument handed to a hook.
func (r *Rule) contextTable(ctx context.Context, rc lint.RuleContext) *lua.LTable {
	L := r.L
	t := L.NewTable()

	t.RawSetString("rule_id", lua.LString(rc.RuleID))
	t.RawSetString("locale", lua.LString(rc.Locale))
	t.RawSetString("root_uri", lua.LString(rc.RootURI))
	t.RawSetString("settings", toLuaValue(L, rc.Settings))

	doc := rc.Document
	if doc != nil {
		t.RawSetString("uri", lua.LString(doc.URI))
		t.RawSetString("language_id", lua.LString(doc.LanguageID))
		t.RawSetString("version", lua.LNumber(doc.Version))
		t.RawSetString("text", lua.LString(doc.Text()))
	}

	t.RawSetString("report", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		if rc.Report == nil || doc == nil {
			return 0
		}
		diag := diagnosticFromTable(L, doc, tbl)
		var fixes []lint.RuleFix
		if fixTable, ok := tableTable(tbl, "fix"); ok {
			fixes = append(fixes, fixFromTable(L, doc, fixTable))
		}
		rc.Report(diag, fixes...)
		return 0
	}))

	t.RawSetString("setting", L.NewFunction(func(L *lua.LState) int {
		v, _ := rc.Setting(L.CheckString(1))
		L.Push(toLuaValue(L, v))
		return 1
	}))

	t.RawSetString("config", L.NewFunction(func(L *lua.LState) int {
		section := L.CheckString(1)
		if rc.Configuration == nil {
			L.Push(lua.LNil)
			return 1
		}
		var scope lsp.DocumentURI
		if doc != nil {
			scope = doc.URI
		}
		v, err := rc.Configuration.GetConfiguration(ctx, section, scope)
		if err != nil {
			r.logger.Warn("lua config lookup failed",
				slog.String("rule", r.name),
				slog.String("section", section),
				slog.Any("error", err))
			L.Push(lua.LNil)
			return 1
		}
		L.Push(toLuaValue(L, v))
		return 1
	}))

	return t
}

// settingsSnapshot records the top-level values of ctx.settings before a
// hook runs.
func settingsSnapshot(t *lua.LTable) map[string]lua.LValue {
	before := make(map[string]lua.LValue)
	if tbl, ok := t.RawGetString("settings").(*lua.LTable); ok {
		tbl.ForEach(func(k, v lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				before[string(key)] = v
			}
		})
	}
	return before
}

// syncSettings writes what a hook did to ctx.settings back into dst, so
// later rules of the same pass see it. Untouched scalars keep their Go
// values; tables are converted again since they may have been mutated.
func syncSettings(dst map[string]any, before map[string]lua.LValue, after lua.LValue) {
	tbl, ok := after.(*lua.LTable)
	if dst == nil || !ok {
		return
	}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if old, ok := before[string(key)]; ok && old == v && v.Type() != lua.LTTable {
			return
		}
		dst[string(key)] = toGoValue(v)
	})
	for key := range before {
		if tbl.RawGetString(key) == lua.LNil {
			delete(dst, key)
		}
	}
}

// diagnosticFromTable reads a report table. Ranges are given either as
// from/to byte offsets in the 1-based inclusive form string.find returns,
// or as 0-based line/character pairs.
func diagnosticFromTable(L *lua.LState, doc *lsp.TextDocument, tbl *lua.LTable) lsp.Diagnostic {
	diag := lsp.Diagnostic{Range: rangeFromTable(doc, tbl)}
	diag.Message, _ = tableString(tbl, "message")
	if src, ok := tableString(tbl, "source"); ok {
		diag.Source = src
	}

	switch sev := tbl.RawGetString("severity").(type) {
	case lua.LString:
		s, ok := lsp.ParseDiagnosticSeverity(string(sev))
		if !ok {
			L.ArgError(1, "unknown severity "+string(sev))
		}
		diag.Severity = s
	case lua.LNumber:
		s := lsp.DiagnosticSeverity(sev)
		if s < lsp.DiagnosticSeverityError || s > lsp.DiagnosticSeverityHint {
			L.ArgError(1, "severity out of range")
		}
		diag.Severity = s
	}

	if code := tbl.RawGetString("code"); code != lua.LNil {
		diag.Code = toGoValue(code)
	}
	if data := tbl.RawGetString("data"); data != lua.LNil {
		diag.Data = toGoValue(data)
	}
	if v, ok := tbl.RawGetString("unnecessary").(lua.LBool); ok && bool(v) {
		diag.Tags = append(diag.Tags, lsp.DiagnosticTagUnnecessary)
	}
	if v, ok := tbl.RawGetString("deprecated").(lua.LBool); ok && bool(v) {
		diag.Tags = append(diag.Tags, lsp.DiagnosticTagDeprecated)
	}
	return diag
}

func rangeFromTable(doc *lsp.TextDocument, tbl *lua.LTable) lsp.Range {
	if from, ok := tableInt(tbl, "from"); ok {
		start := from - 1
		end := start
		if to, ok := tableInt(tbl, "to"); ok && to > start {
			end = to
		}
		return doc.RangeAt(start, end)
	}

	line, _ := tableInt(tbl, "line")
	char, _ := tableInt(tbl, "character")
	endLine, ok := tableInt(tbl, "end_line")
	if !ok {
		endLine = line
	}
	endChar, ok := tableInt(tbl, "end_character")
	if !ok {
		endChar = char
	}
	return lsp.Range{
		Start: lsp.Position{Line: line, Character: char},
		End:   lsp.Position{Line: endLine, Character: endChar},
	}
}

// fixFromTable reads {title, kind, edits = {{from, to, text}, ...}}. Edits
// are resolved against the document up front.
func fixFromTable(L *lua.LState, doc *lsp.TextDocument, tbl *lua.LTable) lint.RuleFix {
	fix := lint.RuleFix{Kinds: []lsp.CodeActionKind{lsp.CodeActionKindQuickFix}}
	fix.Title, _ = tableString(tbl, "title")
	if kind, ok := tableString(tbl, "kind"); ok {
		fix.Kinds = []lsp.CodeActionKind{lsp.CodeActionKind(kind)}
	}

	var edits []lsp.TextEdit
	if list, ok := tableTable(tbl, "edits"); ok {
		for i := 1; i <= list.Len(); i++ {
			e, ok := list.RawGetInt(i).(*lua.LTable)
			if !ok {
				L.ArgError(1, "fix edits must be tables")
			}
			text, _ := tableString(e, "text")
			edits = append(edits, lsp.TextEdit{Range: rangeFromTable(doc, e), NewText: text})
		}
	}

	fix.GetEdits = func(context.Context, lsp.Diagnostic) ([]lsp.TextEdit, error) {
		return edits, nil
	}
	return fix
}
