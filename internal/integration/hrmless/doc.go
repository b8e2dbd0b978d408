// Package hrmless declares the HRMLESS recruiting API as operation actions.
//
// Each resource is a Model: a field schema builder plus a mapper that turns
// flat bundle input back into the nested payload the API expects. Actions
// combine models with an endpoint and are collected by Actions (the
// published catalog) and AllActions (catalog plus settings and position
// maintenance actions).
package hrmless
