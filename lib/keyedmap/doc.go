// Package keyedmap holds bucket maps whose keys are small dense integers. The key itself
// selects the bucket, so the bucket count is fixed at creation (largest key + 1) and never
// rehashed. Only the entry regions grow.
//
// KeyedMap owns its entries. PartialKeyedMap indexes key and value slices owned by the
// caller and is rebuilt from them with Update, typically once per frame.
//
// Keys outside [0, bucketCapacity) are a contract violation and panic.
package keyedmap
