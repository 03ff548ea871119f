/*
Package keychain stores small secrets the shell needs across restarts:
the wallet address and the analytics identifier.

SQLiteStore keeps values sealed with XChaCha20-Poly1305 under a key
derived from a configured secret with HKDF-SHA256. The key name is bound
as additional data so a sealed value cannot be moved to another key.
MemoryStore serves tests and setups without a secret.
*/
package keychain
