// Package discovery finds saned hosts on the local network with mDNS.
//
// saned does not announce itself; hosts running Avahi publish it as a
// "_sane-port._tcp" service. Scan browses for that service type until its
// timeout expires and returns one Host per instance and address:
//
//	hosts, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, h := range hosts {
//	    fmt.Println(h.Instance, h.Address())
//	}
//
// Multicast must be allowed on the interface and UDP port 5353 must not be
// filtered. Hosts on other network segments are not found.
package discovery
