// Package storage defines persistence for the gateway's tracked state:
// interpreter sandbox bindings and agent runtime deployments, both keyed
// by UI session ID. Implementations live in the memory and postgres
// subpackages.
package storage
