package models

import (
	"github.com/amrlabs/amrd/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	Parser BatchParser
	Config *config.Config
}
