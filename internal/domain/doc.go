// Package domain models ICAO NOTAM (Notice to Airmen) text and the
// time-bounded airspace restrictions derived from it.
//
// # Data Source
//
// Raw notices arrive as free-form text blocks published by upstream fetchers
// (NOTAM aggregators or the sample generator in cmd/genmock). Nothing about a
// block is assumed well-formed: every field may be missing or malformed.
//
// # NOTAM Layout
//
// A notice is an identifier line followed by single-letter labeled fields:
//
//	A0123/25 NOTAMN
//	Q) OIIX/QRTCA/IV/NBO/W/000/120/3541N05124E025
//	A) OIII B) 2501120000 C) 2501140000
//	E) TEMPORARY RESTRICTED AREA ACTIVATED.
//
// Field labels are recognized at the start of a line or after whitespace.
// A field's value runs until the next recognized label or the end of input,
// so several fields may share one line. See [ExtractFields].
//
// Qualifier (Q) line, slash separated:
//
//	FIR / codes / traffic / purpose / scope / lower FL / upper FL / point+radius
//	OIIX / QRTCA / IV     / NBO     / W     / 000      / 120      / 3541N05124E025
//
// The last position is an ICAO point (11 characters) followed by up to three
// radius digits in nautical miles. A missing radius defaults to 5 NM.
//
// ICAO point notation:
//
//	DDMM[N|S]DDDMM[E|W]  →  e.g. "3541N05124E" = 35°41'N 051°24'E
//	decimal = degrees + minutes/60, negated for S and W.
//
// Date-time fields (B and C):
//
//	YYMMDDHHMM in UTC, century fixed at 2000: "2501120800" = 2025-01-12T08:00Z.
//	"PERM" in the C field marks a restriction with no end.
//	A trailing "EST" (estimated end) is accepted and ignored.
//
// # Classification
//
// The qualifier code (e.g. QRTCA) is matched against an ordered marker table;
// the first marker found wins. See [DefaultClassificationRules].
//
//	FAL, FAX → closure          WPL, WRL → warning_area
//	RDC      → hazard_notice    RTC, RRC, RPC → temporary_restriction
//	anything else → restriction
//
// # Geometry
//
// Circular areas are approximated by a closed 32-vertex ring. Radius is
// converted with 1 NM = 1.852 km and 1° latitude ≈ 111 km; longitude extent is
// scaled by 1/cos(latitude). See [CirclePolygon].
//
// # Failure Policy
//
// Decoding failures degrade to defaults (start = ingestion time, end = none,
// limits = 0/999, radius = none). Only a notice with no coordinates at all is
// rejected, with [ErrMissingCoordinates].
package domain
