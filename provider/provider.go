// Package provider implements translation backends for the gotlive engine.
package provider

import "github.com/ZaguanLabs/gotlive"

// AIProvider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type AIProvider = gotlive.AIProvider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = gotlive.TranslateRequest

// TranslateResponse is an alias to the main package type.
type TranslateResponse = gotlive.TranslateResponse
