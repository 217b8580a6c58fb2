// Package palanca provides the shared building blocks to deal with financial
// securities: identifying them, caching their reference data, and recording
// their market observations.
//
// The core functionalities include:
//   - Identifier Resolution: normalizing tickers, ISINs, CUSIPs, ISIN.MIC
//     listing ids, currency pairs and private ids into a canonical [Key],
//     validating check digits along the way ([Resolver]).
//   - Reference-Data Caching: memoizing resolutions with a time-to-live, so
//     that a remote [Source] is not queried over and over ([Cache]).
//   - Time Series: recording timestamped observations per instrument, with
//     last-write-wins deduplication and half-open range queries (see the
//     timeseries package and [Market]).
//
// Data providers (eodhd, tradingview) and the palanca command-line tool are
// built on top of this package.
package palanca
