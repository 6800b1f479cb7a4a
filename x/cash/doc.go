/*
Package cash defines a simple ledger of fungible balances, one per asset
contract, and a custodian that lets blank checks move them.

There is no logic in the coins (tokens), except that the balance
of any coin may not go below zero. Thus, this implementation is
referred to as cash. Simple and safe.
*/
package cash
