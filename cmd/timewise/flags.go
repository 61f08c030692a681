package main

import "time"

// UsageFlags Flag structs to decouple cobra from logic for testing.
type UsageFlags struct {
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type StartupsFlags struct {
	Limit int
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type SummaryFlags struct {
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	LogFile    string
}
