// Package ecs is the runtime core of the charcoal game framework: an entity-component
// world paired with a multithreaded system scheduler.
//
// Entities are (index, generation) identifiers issued by a recycling allocator; stale
// identifiers are detected by the generation counter. Each component type lives in its
// own arena: a dense, contiguous array of values with a sparse entity-to-row map, so
// per-frame iteration is a sequential scan.
//
// Systems declare up front which component types they read and write. Each frame the
// scheduler partitions systems into waves of mutually non-conflicting work and runs each
// wave across a work-stealing worker pool. Structural mutations (despawn, attach,
// detach) issued mid-wave are buffered and applied single-threaded at the wave boundary,
// which is what makes lock-free concurrent arena access inside a wave safe. Execution
// order within a wave is unspecified; order across waves is strict.
package ecs
