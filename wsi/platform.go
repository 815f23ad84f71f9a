// Copyright 2024 The GLOVE Authors. All rights reserved.

package wsi

import "github.com/kimberly990/GLOVE/driver"

// Window-system platforms need display-server bindings
// that this build does not carry. Their constructors are
// per-variant so a port only has to replace the one it
// implements.

func newXCB(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}

func newWayland(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}

func newAndroid(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}

func newWin32(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}

func newMacOS(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}

func newPlaneDisplay(cfg Config, gpu driver.GPU) (*Surface, error) {
	return nil, ErrNoPlatform
}
