//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/shapedraw/backend-go/internal/document"
	"github.com/inamate/shapedraw/backend-go/internal/engine"
	"github.com/inamate/shapedraw/backend-go/internal/geometry"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	shapedrawEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	shapedrawEngine.Set("pointerDown", js.FuncOf(pointerDown))
	shapedrawEngine.Set("pointerDrag", js.FuncOf(pointerDrag))
	shapedrawEngine.Set("pointerUp", js.FuncOf(pointerUp))
	shapedrawEngine.Set("toggleMode", js.FuncOf(toggleMode))
	shapedrawEngine.Set("setShapeKind", js.FuncOf(setShapeKind))
	shapedrawEngine.Set("setColor", js.FuncOf(setColor))
	shapedrawEngine.Set("clear", js.FuncOf(clearCanvas))
	shapedrawEngine.Set("loadDocument", js.FuncOf(loadDocument))
	shapedrawEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))

	// --- Queries (frontend ← backend) ---
	shapedrawEngine.Set("render", js.FuncOf(render))
	shapedrawEngine.Set("hitTest", js.FuncOf(hitTest))
	shapedrawEngine.Set("getShape", js.FuncOf(getShape))
	shapedrawEngine.Set("getDocument", js.FuncOf(getDocument))
	shapedrawEngine.Set("getEditorState", js.FuncOf(getEditorState))

	// Register on global scope
	js.Global().Set("shapedrawEngine", shapedrawEngine)

	// Signal that WASM is ready
	js.Global().Set("shapedrawWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// point reads (x, y) from the first two arguments.
func point(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Command Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	if x, y, valid := point(args); valid {
		eng.PointerDown(x, y)
	}
	return nil
}

func pointerDrag(this js.Value, args []js.Value) interface{} {
	if x, y, valid := point(args); valid {
		eng.PointerDrag(x, y)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if x, y, valid := point(args); valid {
		eng.PointerUp(x, y)
	}
	return nil
}

func toggleMode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ToggleMode().String())
}

func setShapeKind(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing shape kind")
	}
	kind, err := geometry.ParseKind(args[0].String())
	if err != nil {
		return fail(err.Error())
	}
	eng.SetShapeKind(kind)
	return ok()
}

func setColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing color")
	}
	if err := eng.SetColor(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func clearCanvas(this js.Value, args []js.Value) interface{} {
	eng.Clear()
	return nil
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	if err := eng.LoadDrawing(document.NewSampleDrawing()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	x, y, valid := point(args)
	if !valid {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(x, y))
}

// getShape resolves a handle returned by hitTest.
func getShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing handle")
	}
	return js.ValueOf(eng.GetShape(args[0].String()))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getEditorState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetEditorState())
}
