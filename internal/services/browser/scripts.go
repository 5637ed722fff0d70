package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Page functions. Each takes the selector as its first argument and acts on
// the first match only.
const (
	scriptClickFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.click();
		return true;
	}`

	attributeFn = `(sel, name) => {
		const el = document.querySelector(sel);
		if (!el) return {found: false, set: false, value: ""};
		const v = el.getAttribute(name);
		return {found: true, set: v !== null, value: v === null ? "" : v};
	}`

	setDisplayFn = `(sel, display) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.style.display = display;
		return true;
	}`

	enabledFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return {found: false, value: false};
		return {found: true, value: !el.disabled};
	}`

	innerTextFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return {found: false, value: ""};
		return {found: true, value: el.innerText || ""};
	}`

	valuesFn = `(sel) => Array.from(document.querySelectorAll(sel), (el) => {
		if (typeof el.value === "string") return el.value;
		return el.getAttribute("value") || "";
	})`

	// visibleFn is truthy once the element is rendered with a non-empty box
	visibleFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}`

	clickableFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el || el.disabled) return false;
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden" || style.pointerEvents === "none") return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}`

	// hitTestFn scrolls the element to the viewport centre and reports what a
	// mouse click there would land on: "ok", "missing" or "covered:<element>".
	// Landing on one of the element's labels counts as a hit.
	hitTestFn = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return "missing";
		el.scrollIntoView({block: "center", inline: "center"});
		const r = el.getBoundingClientRect();
		const hit = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
		if (!hit) return "covered:nothing";
		if (hit === el || el.contains(hit)) return "ok";
		if (el.labels && Array.from(el.labels).some((l) => l === hit || l.contains(hit))) return "ok";
		let desc = hit.tagName.toLowerCase();
		if (hit.id) desc += "#" + hit.id;
		if (typeof hit.className === "string" && hit.className.trim() !== "") {
			desc += "." + hit.className.trim().split(/\s+/).join(".");
		}
		return "covered:" + desc;
	}`
)

// foundValue is the shape returned by the page functions that may miss
type foundValue[T any] struct {
	Found bool `json:"found"`
	Set   bool `json:"set"`
	Value T    `json:"value"`
}

// invoke builds an expression that calls fn with JSON-encoded arguments
func invoke(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encode script argument %d: %w", i, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}
