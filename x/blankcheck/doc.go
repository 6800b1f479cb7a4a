/*
Package blankcheck implements redemption of blank checks.

A payer funds a virtual account, derived from the identities of its signers,
and hands out checks signed by them. A check names the asset, the face value
and a verification key but no recipient. Whoever holds the private part of
the verification key picks the recipient at redemption time by signing its
address. Accounts may require additional signatures of cards, each card
consuming a one time digest.

Every check can be redeemed once. Redeeming a check to its own account
cancels it without moving any value.
*/
package blankcheck
