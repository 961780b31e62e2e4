package plan

// A plan maps a select statement onto the execution phases of the engine.
// The phases run in the following order, every phase but the table scan and
// the output being optional.
//
// 1) TableScan
//    Reads the table named in *from* chunk by chunk. Without a join the
//    *where* condition is evaluated here and the projection is applied here.
//
// 2) Join
//    A block nested loop join of the scanned table with the table named in
//    *join*. The *where* condition becomes the post filter of the joined
//    rows, which are qualified as table.column, and the joined rows are
//    persisted to the join output table. The output phase then scans that
//    table with the projection.
//
// 3) GroupBy
//    Folds the filtered rows into one state per group, the single aggregate
//    function of the projection picks which value of the state is output.
//    A group by can not be combined with a join.
//
// 4) OrderBy
//    External merge sort of the stream produced by the previous phases, the
//    result is persisted to its own table, order_by_result unless configured
//    otherwise, which the output phase then reads.
//
// 5) Output
//    Prints the rows, optionally colored.
