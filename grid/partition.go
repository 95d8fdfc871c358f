package grid

// IsPartitioned reports whether region spreads its entries across members.
func IsPartitioned(region Region) bool {
	_, ok := region.(PartitionedRegion)
	return ok
}

// LocalDataForContext returns the part of the context's data set held by the executing member.
// Replicated regions are returned unchanged.
func LocalDataForContext(rc RegionFunctionContext) Region {
	region := rc.DataSet()
	if pr, ok := region.(PartitionedRegion); ok {
		return pr.LocalData(rc.MemberID())
	}
	return region
}
