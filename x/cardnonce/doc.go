/*
Package cardnonce keeps track of card digests that were already used to
authorize a redemption.

A card signs a 32 byte digest to vouch for a redemption. The pair (card,
digest) can be used only once, no matter which account or check it was used
for. Two registries are provided. Bucket keeps the claims in the same store
as the rest of the state, so claims are rolled back together with the unit of
work. RedisRegistry shares the claims between processes and must be released
explicitly when the redemption that claimed them fails.
*/
package cardnonce
