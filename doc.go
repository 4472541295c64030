/*
Package cardano assembles Cardano "simple payment" transactions.

It combines per-asset quantities across every unspent output owned by a
source address, derives change by subtracting the payment from the
consolidated input, computes minimum-UTXO requirements, chunks long text
messages into ledger-sized metadata segments and orchestrates these into an
unsigned or signed transaction ready for submission.

Chain queries, fee computation, serialization and signing are consumed
through the ChainQuery, LedgerToolkit and Signer interfaces. The package
ships CBOR and ed25519 implementations of the latter two; the rpcclient
package provides a Blockfrost-compatible ChainQuery.
*/

package cardano
