/*
Package nft provides a minimal ledger of unique assets (non-fungible tokens)
and a custodian that lets blank checks transfer them.

Every asset contract has its own set of token ids. A token has exactly one
owner. There are no approvals, only the owner may move a token.
*/
package nft
