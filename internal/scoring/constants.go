package scoring

// DefaultSeed seeds every randomised step (reduction, Monte-Carlo search,
// clustering initialisation) unless the caller overrides it.
const DefaultSeed uint64 = 1234
