// Package luarule loads lint rules written in Lua.
//
// A rule script runs in a sandboxed gopher-lua state with the base, table,
// string and math libraries only. It defines on_syntax, on_semantic and/or
// on_format; each receives a ctx table carrying the document (uri,
// language_id, version, text), the rule id, locale, root_uri and settings,
// plus three functions:
//
//	ctx.report{message = "...", severity = "warning", code = "x",
//	           from = s, to = e,                      -- or line/character/end_line/end_character
//	           fix = {title = "...", edits = {{from = s, to = e, text = ""}}}}
//	ctx.setting(key)
//	ctx.config("section.key")
//
// Every invocation is bounded by a timeout.
package luarule
