// Package script runs Lua scripts that drive a document engine.
//
// Scripts run in a sandboxed gopher-lua state: only the base, table,
// string and math libraries are available, and code cannot be loaded from
// files or strings. The engine is reached through the global folio table:
//
//	folio.find("Welcome")          -- select the first occurrence
//	folio.format("bold")           -- toggle a flag on the selection
//	folio.block("h1")              -- convert the selected blocks
//	folio.select_end()
//	folio.paragraph()
//	folio.type("Posted by the events team.")
//	folio.video("https://youtu.be/dQw4w9WgXcQ")
//	folio.batch("tidy", function()
//	  folio.select_all()
//	  folio.clear()
//	end)
//	print(folio.html())
//
// Any command can also be dispatched by kind:
//
//	folio.dispatch("SET_ALIGNMENT", {align = "center"})
//
// A failing command raises a Lua error; uncaught, it ends the run and Run
// returns an *Error wrapping the engine error. Commands inside folio.batch
// form one undo step and roll back together on failure.
//
// Each run is bounded by a timeout and a command budget.
package script
