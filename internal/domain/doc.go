// Package domain models the USGS earthquake feed and the raw-layer
// storage layout for ingested data.
//
// # Data Source
//
// Event records come from the USGS Earthquake Hazards Program FDSN event
// web service, https://earthquake.usgs.gov/fdsnws/event/1/. Queried with
// format=csv it returns one header row plus one row per event:
//
//	time,latitude,longitude,depth,mag,magType,nst,gap,dmin,rms,net,id,
//	updated,place,type,horizontalError,depthError,magError,magNst,status,
//	locationSource,magSource
//
// This service never inspects that schema. Rows are copied to storage
// exactly as the upstream returns them; cleaning and typing belong to the
// layers downstream of raw.
//
// # Intervals
//
// The external scheduler assigns each run a calendar-date interval
// [start, end). Both bounds are passed to the FDSN query as bare
// YYYY-MM-DD values, which the API reads as midnight UTC, so the effective
// window is [start 00:00, end 00:00), end-exclusive, matching the
// scheduler's data-interval convention. The FDSN documentation does not
// state whether an event at exactly the end instant is included; with
// daily date-aligned windows the ambiguity is a single instant per day.
//
// # Storage Layout
//
// One object per interval, fully determined by the interval start date:
//
//	s3://<bucket>/raw/earthquake/{start}/{start}_00-00-00.gz.parquet
//
// Reruns for the same interval overwrite the same object, which makes the
// task idempotent at the storage layer without content diffing.
package domain
