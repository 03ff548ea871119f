/*
Package reputation implements the advisory scam check consulted while a
connect session is on screen.

The Gate never fails: checker errors, timeouts and an open circuit breaker
all produce a clear verdict, so that a flaky reputation service cannot block
legitimate connection requests.

ScamListChecker downloads a public scam list, keeps the listed hostnames in
memory for a while and matches the dapp's hostname, or its registrable
domain, against them.
*/
package reputation
