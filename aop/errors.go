/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop

import "fmt"

/**
Failure of the remote call translated from the error of the underlying remoting library
*/
type RemoteAccessError struct {
	Service string
	Method  string
	Err     error
}

func (e *RemoteAccessError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("remote access to '%s' method '%s' failed, %v", e.Service, e.Method, e.Err)
	}
	return fmt.Sprintf("remote access to method '%s' failed, %v", e.Method, e.Err)
}

func (e *RemoteAccessError) Unwrap() error {
	return e.Err
}

func (e *RemoteAccessError) Cause() error {
	return e.Err
}
