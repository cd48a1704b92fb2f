/*Package interval implements the interval algebra used to build overlap-map
  mask regions: per-key merging, interval-unions over sorted genomic
  coordinates, complementation against chromosome lengths, and position
  lookup.
  Intervals are 0-based and half-open ([Start0, End)) unless a function says
  otherwise.  Every position is assumed to fit in a PosType, which is int32;
  that is enough for every GRCh38 contig.
*/
package interval
