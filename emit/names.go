// Package emit walks a normalized *model.Model and produces, for every
// state, the guard/action logic and per-state function bodies that make up a
// generated HSM program. It is backend-free: every piece of target-language
// surface syntax is obtained through a target.Syntax/target.Templates value
// supplied by the caller (package target/rustgen, target/cgen, target/pygen).
package emit

import (
	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
)

func funcExit(path pathalg.Path) string {
	return "state_" + model.FlatName(path) + "_exit"
}

func funcEntry(path pathalg.Path, suffix string) string {
	return "state_" + model.FlatName(path) + suffix
}

func funcStart(path pathalg.Path) string {
	return "state_" + model.FlatName(path) + "_start"
}

func funcDo(path pathalg.Path) string {
	return "state_" + model.FlatName(path) + "_do"
}
