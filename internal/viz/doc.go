// Package viz renders stored command profiles in the terminal.
//
//   - [Plot]: an asciigraph chart of one channel over time
//   - [Canvas]: a Braille pixel canvas used to draw the planned path
//   - [Inspector]: a Bubble Tea program that scrubs through a profile
//
// # Key Bindings
//
//	h/l, left/right - Step one sample
//	H/L             - Step ten samples
//	g/G             - Jump to start/end
//	tab             - Cycle the plotted channel
//	q               - Quit
package viz
