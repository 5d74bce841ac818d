package workload

import "math"

// Evaluate burns a deterministic amount of CPU proportional to cost and
// returns a value derived from the computation. Two calls with the same cost
// always return the same value, on any worker, under any scheduling policy,
// which is what makes cross-strategy verification possible.
//
// The work is a trial-division prime count below a cost-derived bound plus a
// short transcendental accumulation; the returned value depends on both, so
// the loops cannot be optimized away. Evaluate touches no shared state and is
// safe to call concurrently without any lock.
func Evaluate(cost int) float64 {
	if cost < 1 {
		cost = 1
	}

	bound := 64 + cost*16
	primes := 0
	for n := 2; n < bound; n++ {
		if isPrime(n) {
			primes++
		}
	}

	acc := 0.0
	for i := 1; i <= cost; i++ {
		acc += math.Sin(float64(i) * 0.001)
	}

	return float64(primes) + acc
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
