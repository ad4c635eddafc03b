package spatial

// floatCmpEpsilon is the tolerance used when comparing lengths/norms that
// should be exactly 1 or 0 but may carry float32 rounding error.
const floatCmpEpsilon float32 = 1e-6
