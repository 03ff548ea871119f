// Package walletconnect keeps track of the requests each WalletConnect
// connection still has outstanding. The admission queue asks it whether an
// external connect for a topic would duplicate work the connection itself
// will surface.
package walletconnect
