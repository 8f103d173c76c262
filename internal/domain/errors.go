package domain

import "fmt"

// Sentinel errors for the client engine.
var (
	ErrNoIdentity = fmt.Errorf("no user identity set")
	ErrStoreLoad  = fmt.Errorf("log store load failed")
	ErrStoreSave  = fmt.Errorf("log store save failed")
	ErrConfigLoad = fmt.Errorf("failed to load configuration")
)
