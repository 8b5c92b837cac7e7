package main

import (
	"fyne.io/fyne/v2"
)

// UpdateWidgetOnMainThread schedules a widget update function to run on the main Fyne thread.
// Fyne widgets cannot be updated directly from goroutines, so recorder callbacks
// copy what they need and hand the drawing over to this.
func UpdateWidgetOnMainThread(callback func()) {
	if callback == nil {
		return
	}
	fyne.Do(callback)
}
