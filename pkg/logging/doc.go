// Package logging configures the operational logger used by every gqldevkit
// component.
//
// It is a thin layer over log/slog. Components accept a *slog.Logger through a
// WithLogger option and fall back to Nop when none is given:
//
//	log := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	log.Info("debug server started", "url", url)
//
// The output writer is resolved once, when the logger is built. Console
// redirection swaps os.Stdout and os.Stderr later on, so operational logs keep
// going to the terminal and never show up in the captured console stream.
package logging
