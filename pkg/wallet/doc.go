// Package wallet defines the boundary to the external browser wallet and
// provides a client for the local wallet bridge that relays requests to an
// injected Phantom-style provider.
//
// The user's private key never crosses this boundary. Connect returns the
// public key the user authorised, and SignTransaction hands a prepared
// transaction to the wallet and returns it with the wallet's signature
// attached.
package wallet
